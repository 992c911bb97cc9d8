package server

import (
	"fmt"

	"github.com/inconshreveable/log15"

	"github.com/skuchniy0511/ordkv/config"
	"github.com/skuchniy0511/ordkv/transport"
)

// OpenTransport connects to the broker named in conf.
func OpenTransport(conf *config.Config, logger log15.Logger) (transport.Transport, error) {
	switch conf.Transport {
	case config.TransportAMQP:
		return transport.DialAMQP(conf.AmqpUrl)
	case config.TransportSQS:
		return transport.NewSQS(transport.SQSOptions{
			Region:          conf.SQS.Region,
			Endpoint:        conf.SQS.Endpoint,
			WaitTimeSeconds: conf.ServerWaitTimeSeconds,
			OnError: func(err error) {
				logger.Error("Error while receiving messages", "error", err)
			},
		})
	case config.TransportMemory:
		return transport.NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownTransport, conf.Transport)
	}
}
