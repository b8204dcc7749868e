package synapse

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/subnet42/harvester/pkg/signature"
)

// ZstdMiddleware decompresses zstd-encoded request bodies and compresses the
// response when the client accepts zstd.
func ZstdMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if strings.Contains(strings.ToLower(c.Get("Content-Encoding")), "zstd") {
			r, err := zstd.NewReader(bytes.NewReader(c.Body()))
			if err != nil {
				log.Error().Err(err).Msg("zstd: failed to create reader for request body")
				return c.Status(fiber.StatusBadRequest).SendString("invalid zstd request body")
			}
			defer r.Close()

			out, err := io.ReadAll(r)
			if err != nil {
				log.Error().Err(err).Msg("zstd: failed to decompress request body")
				return c.Status(fiber.StatusBadRequest).SendString("invalid zstd request body")
			}

			c.Request().SetBody(out)
			c.Request().Header.Set("Content-Length", strconv.Itoa(len(out)))
			c.Request().Header.Del("Content-Encoding")
		}

		if err := c.Next(); err != nil {
			return err
		}

		if strings.Contains(strings.ToLower(c.Get("Accept-Encoding")), "zstd") {
			respBody := c.Response().Body()
			var buf bytes.Buffer
			w, err := zstd.NewWriter(&buf)
			if err != nil {
				log.Error().Err(err).Msg("zstd: failed to create writer for response body")
				return nil
			}
			if _, err := w.Write(respBody); err != nil {
				_ = w.Close()
				log.Error().Err(err).Msg("zstd: failed to compress response body")
				return nil
			}
			_ = w.Close()

			comp := buf.Bytes()
			c.Response().SetBody(comp)
			c.Set("Content-Encoding", "zstd")
			c.Set("Vary", "Accept-Encoding")
			c.Set("Content-Length", strconv.Itoa(len(comp)))
		}

		return nil
	}
}

// SignatureVerifier abstracts sr25519 verification for testability.
type SignatureVerifier interface {
	Verify(message, signature, ss58Address string) (bool, error)
}

// Signed timestamps older or newer than this are rejected, so a captured
// header triple stops working once it ages out.
const maxAuthAge = 5 * time.Minute

// VerifySignatureMiddleware rejects requests without a valid sr25519 signature
// over the canonical request message, which binds the caller's hotkey, a fresh
// unix timestamp, and the request body hash. Requires headers x-hotkey,
// x-signature, x-timestamp.
func VerifySignatureMiddleware(v SignatureVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sig := c.Get("x-signature")
		hotkey := c.Get("x-hotkey")
		timestamp := c.Get("x-timestamp")
		if sig == "" || hotkey == "" || timestamp == "" {
			log.Warn().Bool("missing_sig", sig == "").Bool("missing_hotkey", hotkey == "").Bool("missing_timestamp", timestamp == "").Msg("missing auth header")
			return c.Status(fiber.StatusUnauthorized).SendString("missing auth header")
		}

		ts, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			log.Warn().Str("hotkey", hotkey).Str("timestamp", timestamp).Msg("unparseable auth timestamp")
			return c.Status(fiber.StatusUnauthorized).SendString("invalid auth timestamp")
		}
		if age := time.Since(time.Unix(ts, 0)); age > maxAuthAge || age < -maxAuthAge {
			log.Warn().Str("hotkey", hotkey).Int64("timestamp", ts).Msg("auth timestamp outside accepted window")
			return c.Status(fiber.StatusUnauthorized).SendString("auth timestamp expired")
		}

		message := signature.RequestMessage(hotkey, timestamp, signature.BodyHash(c.Body()))
		ok, err := v.Verify(message, sig, hotkey)
		if err != nil {
			log.Error().Err(err).Str("hotkey", hotkey).Msg("signature verification error")
			return c.Status(fiber.StatusUnauthorized).SendString("signature verification error")
		}
		if !ok {
			log.Warn().Str("hotkey", hotkey).Msg("invalid signature")
			return c.Status(fiber.StatusUnauthorized).SendString("invalid signature")
		}

		return c.Next()
	}
}
