package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/inconshreveable/log15"

	"github.com/skuchniy0511/ordkv/config"
	"github.com/skuchniy0511/ordkv/store"
	"github.com/skuchniy0511/ordkv/transport"
	"github.com/skuchniy0511/ordkv/types"
)

type Server struct {
	data      *store.Store
	transport transport.Transport
	queue     string
	logFile   log15.Logger
	logger    log15.Logger
	ctx       context.Context
	Cancel    context.CancelFunc
	logsMux   sync.Mutex
}

func NewServer(conf *config.Config, tr transport.Transport, data *store.Store) (*Server, error) {
	logger, err := NewLogger(conf, "server")
	if err != nil {
		return nil, err
	}
	logFile, err := NewJournal(conf)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		data:      data,
		transport: tr,
		queue:     conf.RequestQueue(),
		ctx:       ctx,
		Cancel:    cancel,
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// StartServer consumes the request queue until Cancel is called. Messages
// are applied one at a time, in the order the broker delivers them, so the
// resulting order of entries is deterministic.
func (s *Server) StartServer() error {
	s.logger.Debug("Listening queue!", "queue", s.queue)
	messages, err := s.transport.Consume(s.ctx, s.queue)
	if err != nil {
		return fmt.Errorf("consume %s: %w", s.queue, err)
	}

	return s.processMessages(messages)
}

func (s *Server) processMessages(messages <-chan transport.Message) error {
	for {
		select {
		case <-s.ctx.Done():
			return nil
		case message, ok := <-messages:
			if !ok {
				if s.ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("queue %s: %w", s.queue, transport.ErrClosed)
			}
			s.processMessage(message)
		}
	}
}

func (s *Server) processMessage(message transport.Message) {
	var res types.Result

	var item *types.Item
	err := json.Unmarshal(message.Body, &item)
	switch {
	case err != nil:
		s.logger.Error("Cannot unmarshal message", "id", message.ID, "error", err.Error())
		res = types.Result{ID: message.ID, Error: fmt.Sprintf("cannot unmarshal item: %v", err)}
	case item == nil:
		res = types.Result{ID: message.ID, Error: "empty item"}
	default:
		if item.ID == "" {
			item.ID = message.ID
		}
		res = s.data.Apply(item)
	}

	s.journal(res)

	if message.ReplyTo != "" {
		if err := s.reply(message, res); err != nil {
			s.logger.Error("Error while sending result", "id", res.ID, "error", err)
		}
	}

	if err := s.transport.Ack(s.ctx, message); err != nil {
		s.logger.Error("Error while deleting message", "id", message.ID, "error", err)
	}
}

func (s *Server) journal(res types.Result) {
	s.logsMux.Lock()
	defer s.logsMux.Unlock()
	if res.Error != "" {
		s.logFile.Warn(res.String(), "id", res.ID)
		return
	}
	s.logFile.Info(res.String(), "id", res.ID, "count", res.Count)
}

func (s *Server) reply(message transport.Message, res types.Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return err
	}

	return s.transport.Publish(s.ctx, message.ReplyTo, transport.Message{
		CorrelationID: res.ID,
		Body:          body,
	})
}
