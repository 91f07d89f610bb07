package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName carries the request's ray ID back to the caller.
const HeaderName = "X-Ray-ID"

// New returns a middleware that assigns every request a unique ray ID,
// stored in locals under "ray_id" and echoed in the response header. An
// incoming X-Ray-ID is honored so upstream proxies can stitch traces.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(HeaderName)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals("ray_id", rid)
		c.Set(HeaderName, rid)
		return c.Next()
	}
}
