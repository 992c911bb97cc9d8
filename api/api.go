// Package api exposes the store over HTTP. Every route is translated into a
// types.Item and applied through the store, so HTTP and queue clients see
// the same behaviour.
package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/inconshreveable/log15"

	"github.com/skuchniy0511/ordkv/store"
	"github.com/skuchniy0511/ordkv/types"
)

type API struct {
	app    *fiber.App
	data   *store.Store
	logger log15.Logger
}

type entryBody struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func New(data *store.Store, logger log15.Logger) *API {
	a := &API{
		app: fiber.New(fiber.Config{
			// keys from the path outlive the request inside the store
			Immutable:             true,
			DisableStartupMessage: true,
		}),
		data:   data,
		logger: logger,
	}
	a.routes()

	return a
}

func (a *API) routes() {
	a.app.Get("/items", a.apply(func(c *fiber.Ctx) (*types.Item, error) {
		return &types.Item{Action: types.GetAllItems}, nil
	}))
	a.app.Delete("/items", a.apply(func(c *fiber.Ctx) (*types.Item, error) {
		return &types.Item{Action: types.ClearItems}, nil
	}))
	a.app.Get("/items/:key", a.apply(func(c *fiber.Ctx) (*types.Item, error) {
		return &types.Item{Action: types.GetItem, Key: c.Params("key")}, nil
	}))
	a.app.Put("/items/:key", a.apply(func(c *fiber.Ctx) (*types.Item, error) {
		var body entryBody
		if err := c.BodyParser(&body); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return &types.Item{Action: types.AddItem, Key: c.Params("key"), Value: body.Value}, nil
	}))
	a.app.Delete("/items/:key", a.apply(func(c *fiber.Ctx) (*types.Item, error) {
		return &types.Item{Action: types.RemoveItem, Key: c.Params("key")}, nil
	}))
	a.app.Get("/keys/:key/index", a.apply(func(c *fiber.Ctx) (*types.Item, error) {
		return &types.Item{Action: types.IndexOfItem, Key: c.Params("key")}, nil
	}))

	a.app.Get("/index/:index", a.apply(indexed(types.GetItemAt, false)))
	a.app.Put("/index/:index", a.apply(indexed(types.SetItemAt, true)))
	a.app.Delete("/index/:index", a.apply(indexed(types.RemoveItemAt, false)))
	a.app.Post("/insert/:index", a.apply(indexed(types.InsertItem, true)))

	a.app.Post("/sort", a.apply(func(c *fiber.Ctx) (*types.Item, error) {
		return &types.Item{Action: types.SortItems, Order: c.Query("order")}, nil
	}))
	a.app.Get("/count", a.apply(func(c *fiber.Ctx) (*types.Item, error) {
		return &types.Item{Action: types.CountItems}, nil
	}))
	a.app.Get("/describe", a.apply(func(c *fiber.Ctx) (*types.Item, error) {
		return &types.Item{Action: types.DescribeItems}, nil
	}))
}

func indexed(action types.ActionType, withBody bool) func(c *fiber.Ctx) (*types.Item, error) {
	return func(c *fiber.Ctx) (*types.Item, error) {
		index, err := c.ParamsInt("index")
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "index must be an integer")
		}
		item := &types.Item{Action: action, Index: types.IntPtr(index)}
		if withBody {
			var body entryBody
			if err := c.BodyParser(&body); err != nil {
				return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			item.Key, item.Value = body.Key, body.Value
		}
		return item, nil
	}
}

func (a *API) apply(parse func(c *fiber.Ctx) (*types.Item, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := parse(c)
		if err != nil {
			return err
		}
		item.ID = c.Get("X-Request-Id", uuid.NewString())

		res := a.data.Apply(item)
		a.logger.Debug("Applied item", "id", res.ID, "action", res.Action, "found", res.Found)

		return c.Status(status(item.Action, res)).JSON(res)
	}
}

func status(action types.ActionType, res types.Result) int {
	switch {
	case res.Error != "":
		return http.StatusUnprocessableEntity
	case !res.Found && (action == types.GetItem || action == types.GetItemAt || action == types.IndexOfItem ||
		action == types.RemoveItem || action == types.RemoveItemAt):
		return http.StatusNotFound
	default:
		return http.StatusOK
	}
}

// Handler returns the fiber app, mainly for tests.
func (a *API) Handler() *fiber.App {
	return a.app
}

func (a *API) Listen(addr string) error {
	a.logger.Info("Listening http", "addr", addr)
	return a.app.Listen(addr)
}

func (a *API) Shutdown() error {
	return a.app.Shutdown()
}
