package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

const (
	attrID            = "Id"
	attrCorrelationID = "CorrelationId"
	attrReplyTo       = "ReplyTo"
)

var receiveRetryDelay = time.Second

// SQS uses queue URLs as queue names.
type SQS struct {
	svc      sqsiface.SQSAPI
	waitTime int64
	onError  func(error)
}

type SQSOptions struct {
	Region   string
	Endpoint string
	// WaitTimeSeconds is the long polling wait of every receive call.
	WaitTimeSeconds int64
	// OnError is told about failed receive calls. Receiving is retried
	// after a second.
	OnError func(error)
}

func NewSQS(opts SQSOptions) (*SQS, error) {
	cfg := aws.NewConfig()
	if opts.Region != "" {
		cfg = cfg.WithRegion(opts.Region)
	}
	if opts.Endpoint != "" {
		cfg = cfg.WithEndpoint(opts.Endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}

	return NewSQSWithClient(sqs.New(sess), opts), nil
}

func NewSQSWithClient(svc sqsiface.SQSAPI, opts SQSOptions) *SQS {
	return &SQS{svc: svc, waitTime: opts.WaitTimeSeconds, onError: opts.OnError}
}

func (s *SQS) Publish(ctx context.Context, queue string, msg Message) error {
	attrs := map[string]*sqs.MessageAttributeValue{}
	for name, v := range map[string]string{
		attrID:            msg.ID,
		attrCorrelationID: msg.CorrelationID,
		attrReplyTo:       msg.ReplyTo,
	} {
		if v != "" {
			attrs[name] = &sqs.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}
	}

	_, err := s.svc.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(queue),
		MessageBody:       aws.String(string(msg.Body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", queue, err)
	}

	return nil
}

func (s *SQS) Consume(ctx context.Context, queue string) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			resp, err := s.svc.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
				QueueUrl:              aws.String(queue),
				MaxNumberOfMessages:   aws.Int64(10),
				WaitTimeSeconds:       aws.Int64(s.waitTime),
				MessageAttributeNames: []*string{aws.String(sqs.QueueAttributeNameAll)},
			})
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if s.onError != nil {
					s.onError(fmt.Errorf("receive from %s: %w", queue, err))
				}
				select {
				case <-time.After(receiveRetryDelay):
				case <-ctx.Done():
				}
				continue
			}
			for _, m := range resp.Messages {
				msg := Message{
					ID:            attribute(m, attrID),
					CorrelationID: attribute(m, attrCorrelationID),
					ReplyTo:       attribute(m, attrReplyTo),
					Body:          []byte(aws.StringValue(m.Body)),
					receipt:       sqsReceipt{queue: queue, handle: aws.StringValue(m.ReceiptHandle)},
				}
				if msg.ID == "" {
					msg.ID = aws.StringValue(m.MessageId)
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

type sqsReceipt struct {
	queue  string
	handle string
}

func (s *SQS) Ack(ctx context.Context, msg Message) error {
	r, ok := msg.receipt.(sqsReceipt)
	if !ok {
		return fmt.Errorf("ack %s: not an sqs message", msg.ID)
	}
	_, err := s.svc.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(r.queue),
		ReceiptHandle: aws.String(r.handle),
	})

	return err
}

func (s *SQS) Close() error {
	return nil
}

func attribute(m *sqs.Message, name string) string {
	if v, ok := m.MessageAttributes[name]; ok && v != nil {
		return aws.StringValue(v.StringValue)
	}
	return ""
}
