package synapse

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
)

// CollectHandler fulfills one collect request on the miner side.
type CollectHandler func(ctx context.Context, req CollectRequest) (CollectResponse, error)

// Server is the miner's axon: it accepts signed collect requests from
// validators and hands them to the registered handler.
type Server struct {
	app *fiber.App
	cfg Config
}

func NewServer(cfg Config, verifier SignatureVerifier, handler CollectHandler) *Server {
	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
		BodyLimit:   cfg.BodySizeLimit,
	})

	app.Use(recover.New())
	app.Use(ZstdMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	if verifier != nil {
		app.Use(VerifySignatureMiddleware(verifier))
	}

	s := &Server{app: app, cfg: cfg}
	app.Post("/collect", func(c *fiber.Ctx) error {
		var req CollectRequest
		if err := sonic.Unmarshal(c.Body(), &req); err != nil {
			log.Error().Err(err).Msg("failed to unmarshal collect request")
			return c.Status(fiber.StatusBadRequest).SendString("invalid payload")
		}

		log.Info().Str("task_id", req.TaskID).Str("query", req.Query).Int("count", req.Count).Msg("received collect request")

		resp, err := handler(c.UserContext(), req)
		if err != nil {
			log.Error().Err(err).Str("task_id", req.TaskID).Msg("collect handler failed")
			return c.Status(fiber.StatusInternalServerError).SendString("collection failed")
		}
		resp.TaskID = req.TaskID
		resp.CollectedAt = time.Now().Unix()
		return c.Status(fiber.StatusOK).JSON(resp)
	})
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.Port)
	go func() {
		if err := s.app.Listen(addr); err != nil {
			log.Error().Err(err).Msg("axon listen failed")
		}
	}()
	<-ctx.Done()
	return s.Shutdown()
}

func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}
