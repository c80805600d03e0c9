package handlers

import (
	"errors"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
)

func GetPostID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, errors.New("post id is not valid")
	}
	return int64(id), nil
}

// removeStaged deletes a staged upload. Failures are only logged.
func removeStaged(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Info("unable to remove staged file", "path", path, "error", err)
	}
}
