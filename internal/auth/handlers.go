package auth

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
)

// AvatarSaver stores an uploaded avatar and returns a URL it can be served
// from. Implemented by the storage service.
type AvatarSaver interface {
	SaveObject(ctx context.Context, userID, kind, contentType string, data []byte) (string, error)
}

func RegisterRoutes(r fiber.Router, svc *Service, avatars AvatarSaver, limiter *LoginRateLimiter) {
	r.Post("/login/", limiter.Middleware(), func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil || req.Username == "" || req.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "username and password required")
		}

		tokens, err := svc.Login(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return c.JSON(tokens)
	})

	r.Post("/register/", func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}

		user, err := svc.Register(c.Context(), req)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"detail": "validation failed",
					"errors": verr.Fields,
				})
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	})

	r.Post("/token/refresh/", func(c *fiber.Ctx) error {
		var req RefreshRequest
		if err := c.BodyParser(&req); err != nil || req.Refresh == "" {
			return fiber.NewError(fiber.StatusBadRequest, "refresh required")
		}

		access, err := svc.Refresh(c.Context(), req.Refresh)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return c.JSON(fiber.Map{"access": access})
	})

	me := r.Group("/users/me", JWTMiddleware(string(svc.secret)))

	me.Get("/", func(c *fiber.Ctx) error {
		user, err := svc.Me(c.Context(), c.Locals("user_id").(string))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return c.JSON(user)
	})

	me.Patch("/", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var name, avatarURL string
		if file, err := c.FormFile("avatar"); err == nil {
			f, err := file.Open()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "unreadable avatar")
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "unreadable avatar")
			}

			url, err := avatars.SaveObject(c.Context(), userID, "avatar", file.Header.Get("Content-Type"), data)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			avatarURL = url
			name = c.FormValue("name")
		} else {
			var body struct {
				Name string `json:"name"`
			}
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
			}
			name = body.Name
		}

		user, err := svc.UpdateMe(c.Context(), userID, name, avatarURL)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(user)
	})
}
