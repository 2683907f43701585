package community

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
)

// ImageSaver stores an uploaded post image and returns its serving URL.
type ImageSaver interface {
	SaveObject(ctx context.Context, userID, kind, contentType string, data []byte) (string, error)
}

func RegisterRoutes(posts, comments fiber.Router, svc *Service, images ImageSaver, optionalAuth, requireAuth fiber.Handler) {
	posts.Get("/", optionalAuth, func(c *fiber.Ctx) error {
		viewerID, _ := c.Locals("user_id").(string)
		feed, err := svc.ListPosts(c.Context(), viewerID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(Envelope{Count: len(feed), Results: feed})
	})

	posts.Post("/", requireAuth, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		content := c.FormValue("content")

		var trackID *string
		if track := c.FormValue("track"); track != "" {
			trackID = &track
		}

		var imageURL string
		if file, err := c.FormFile("image"); err == nil {
			f, err := file.Open()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "unreadable image")
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "unreadable image")
			}
			imageURL, err = images.SaveObject(c.Context(), userID, "post-image", file.Header.Get("Content-Type"), data)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}

		post, err := svc.CreatePost(c.Context(), userID, content, imageURL, trackID)
		if err != nil {
			if errors.Is(err, ErrEmptyPost) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			if errors.Is(err, ErrUnknownTrack) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"detail": "validation failed",
					"errors": fiber.Map{"track": []string{err.Error()}},
				})
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	})

	posts.Delete("/:id/", requireAuth, func(c *fiber.Ctx) error {
		err := svc.DeletePost(c.Context(), c.Params("id"), c.Locals("user_id").(string))
		if err != nil {
			if errors.Is(err, ErrForbidden) {
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusNotFound, "post not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	posts.Post("/:id/react/", requireAuth, func(c *fiber.Ctx) error {
		var body struct {
			ReactionType string `json:"reaction_type"`
		}
		if err := c.BodyParser(&body); err != nil || body.ReactionType == "" {
			return fiber.NewError(fiber.StatusBadRequest, "reaction_type required")
		}
		if err := svc.React(c.Context(), c.Params("id"), c.Locals("user_id").(string), body.ReactionType); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	posts.Delete("/:id/react/", requireAuth, func(c *fiber.Ctx) error {
		if err := svc.Unreact(c.Context(), c.Params("id"), c.Locals("user_id").(string)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	posts.Post("/:id/comment/", requireAuth, func(c *fiber.Ctx) error {
		var body struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil || body.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "content required")
		}
		comment, err := svc.AddComment(c.Context(), c.Params("id"), c.Locals("user_id").(string), body.Content)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	})

	comments.Delete("/:id/", requireAuth, func(c *fiber.Ctx) error {
		err := svc.DeleteComment(c.Context(), c.Params("id"), c.Locals("user_id").(string))
		if err != nil {
			if errors.Is(err, ErrForbidden) {
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusNotFound, "comment not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
