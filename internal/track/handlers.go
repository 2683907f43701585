package track

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, optionalAuth, requireAuth fiber.Handler) {
	r.Get("/", optionalAuth, func(c *fiber.Ctx) error {
		viewerID, _ := c.Locals("user_id").(string)
		favoritedOnly := c.Query("favorited") == "true"
		if favoritedOnly && viewerID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}

		tracks, err := svc.List(c.Context(), viewerID, favoritedOnly)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(Envelope{Count: len(tracks), Results: tracks})
	})

	r.Get("/:id/", optionalAuth, func(c *fiber.Ctx) error {
		viewerID, _ := c.Locals("user_id").(string)
		t, err := svc.Get(c.Context(), c.Params("id"), viewerID)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "track not found")
		}
		return c.JSON(t)
	})

	r.Post("/:id/favorite/", requireAuth, func(c *fiber.Ctx) error {
		if err := svc.AddFavorite(c.Context(), c.Locals("user_id").(string), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	r.Delete("/:id/favorite/", requireAuth, func(c *fiber.Ctx) error {
		if err := svc.RemoveFavorite(c.Context(), c.Locals("user_id").(string), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
