package storage

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/:id", func(c *fiber.Ctx) error {
		obj, err := svc.GetObject(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "object not found")
		}

		c.Set(fiber.HeaderContentType, obj.ContentType)
		return c.Send(obj.Data)
	})
}
