package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inconshreveable/log15"

	"github.com/skuchniy0511/ordkv/config"
	"github.com/skuchniy0511/ordkv/transport"
	"github.com/skuchniy0511/ordkv/types"
)

type Client struct {
	transport  transport.Transport
	queue      string
	replyQueue string
}

func NewClient(conf *config.Config, tr transport.Transport) *Client {
	return &Client{
		transport:  tr,
		queue:      conf.RequestQueue(),
		replyQueue: conf.ResultQueue(),
	}
}

// SendMessage publishes item to the request queue and returns its id. Items
// without an id get a fresh one.
func (c *Client) SendMessage(ctx context.Context, item *types.Item) (string, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	req, err := json.Marshal(item)
	if err != nil {
		return "", err
	}

	err = c.transport.Publish(ctx, c.queue, transport.Message{
		ID:      item.ID,
		ReplyTo: c.replyQueue,
		Body:    req,
	})
	if err != nil {
		return "", fmt.Errorf("send %s: %w", item.Action, err)
	}

	return item.ID, nil
}

func (c *Client) AddItem(ctx context.Context, key, value string) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.AddItem, Key: key, Value: value})
}

func (c *Client) GetItem(ctx context.Context, key string) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.GetItem, Key: key})
}

func (c *Client) GetAllItems(ctx context.Context) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.GetAllItems})
}

func (c *Client) RemoveItem(ctx context.Context, key string) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.RemoveItem, Key: key})
}

func (c *Client) InsertItem(ctx context.Context, index int, key, value string) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.InsertItem, Index: types.IntPtr(index), Key: key, Value: value})
}

func (c *Client) SetItemAt(ctx context.Context, index int, key, value string) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.SetItemAt, Index: types.IntPtr(index), Key: key, Value: value})
}

func (c *Client) GetItemAt(ctx context.Context, index int) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.GetItemAt, Index: types.IntPtr(index)})
}

func (c *Client) RemoveItemAt(ctx context.Context, index int) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.RemoveItemAt, Index: types.IntPtr(index)})
}

func (c *Client) IndexOfItem(ctx context.Context, key string) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.IndexOfItem, Key: key})
}

func (c *Client) ClearItems(ctx context.Context) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.ClearItems})
}

func (c *Client) SortItems(ctx context.Context, order string) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.SortItems, Order: order})
}

func (c *Client) CountItems(ctx context.Context) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.CountItems})
}

func (c *Client) DescribeItems(ctx context.Context) (string, error) {
	return c.SendMessage(ctx, &types.Item{Action: types.DescribeItems})
}

// ListenReplies hands every result on the reply queue to handle until ctx
// is done.
func (c *Client) ListenReplies(ctx context.Context, handle func(types.Result)) error {
	if c.replyQueue == "" {
		return nil
	}
	messages, err := c.transport.Consume(ctx, c.replyQueue)
	if err != nil {
		return err
	}
	for msg := range messages {
		var res types.Result
		if err := json.Unmarshal(msg.Body, &res); err == nil {
			handle(res)
		}
		if err := c.transport.Ack(ctx, msg); err != nil && ctx.Err() == nil {
			return err
		}
	}

	return nil
}

type ClientsManager struct {
	clients   map[string]*ClientUsage
	input     *os.File
	clientCfg *config.Config
	transport transport.Transport
	logger    log15.Logger
	idle      time.Duration
	mux       sync.Mutex
	ctx       context.Context
	Cancel    context.CancelFunc
}

type ClientUsage struct {
	client   *Client
	lastUsed time.Time
}

func NewClientsManager(cfg *config.Config, tr transport.Transport, logger log15.Logger) (manager *ClientsManager, err error) {
	input := os.Stdin
	if len(cfg.ClientsInputPath) != 0 {
		input, err = os.Open(cfg.ClientsInputPath)
		if err != nil {
			return nil, err
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ClientsManager{
		clients:   make(map[string]*ClientUsage),
		input:     input,
		clientCfg: cfg,
		transport: tr,
		logger:    logger,
		idle:      time.Duration(cfg.ClientIdleSeconds) * time.Second,
		ctx:       ctx,
		Cancel:    cancel,
	}, nil
}

// ListenClientActions reads client tasks from the input until Cancel is
// called or the input fails. Tasks are sent in input order.
func (cm *ClientsManager) ListenClientActions() error {
	if cm.input == os.Stdin {
		fmt.Println("Write clients tasks here in format <clientId> <item>")
	} else {
		defer cm.input.Close()
	}

	ticker := time.NewTicker(cm.idle)
	defer ticker.Stop()

	go func() {
		err := NewClient(cm.clientCfg, cm.transport).ListenReplies(cm.ctx, func(res types.Result) {
			cm.logger.Info("Result received", "id", res.ID, "result", res.String())
		})
		if err != nil {
			cm.logger.Error("Error while receiving results", "error", err)
		}
	}()

	lines, errChan := SubscribeToFileInput(cm.ctx, cm.input)

	for {
		select {
		case <-cm.ctx.Done():
			return nil
		case <-ticker.C:
			cm.removeUnusedClients()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errChan:
					return err
				default:
					return nil
				}
			}
			if err := cm.processClientAction(line); err != nil {
				cm.logger.Error("Cannot process client task", "line", line, "error", err)
			}
		}
	}
}

func (cm *ClientsManager) removeUnusedClients() {
	cm.mux.Lock()
	defer cm.mux.Unlock()
	for clientId, clientUsage := range cm.clients {
		if time.Since(clientUsage.lastUsed) > cm.idle {
			delete(cm.clients, clientId)
		}
	}
}

func (cm *ClientsManager) processClientAction(inputStr string) error {
	cm.mux.Lock()
	defer cm.mux.Unlock()

	clientId, itemStr, found := strings.Cut(strings.TrimSpace(inputStr), " ")
	if !found || len(clientId) == 0 {
		return fmt.Errorf("wrong input string %q, should be in format <clientId> <item>", inputStr)
	}

	var item *types.Item
	err := json.Unmarshal([]byte(itemStr), &item)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("client %s: empty item", clientId)
	}

	usage, ok := cm.clients[clientId]
	if !ok {
		usage = &ClientUsage{client: NewClient(cm.clientCfg, cm.transport)}
		cm.clients[clientId] = usage
	}
	usage.lastUsed = time.Now()

	id, err := usage.client.SendMessage(cm.ctx, item)
	if err != nil {
		return err
	}
	cm.logger.Debug("Task sent", "client", clientId, "id", id, "action", item.Action)

	return nil
}
