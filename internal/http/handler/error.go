package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"reportapi/internal/apperr"
)

// The API speaks two envelopes, both inherited from the wire contract:
// {"message": ...} for project create/delete and
// {"meta_data": {"message": ...}} for report listing and ingestion.

type messageBody struct {
	Message string `json:"message"`
}

type metaData struct {
	Message string `json:"message"`
}

type metaBody struct {
	MetaData metaData `json:"meta_data"`
}

func message(msg string) messageBody {
	return messageBody{Message: msg}
}

func meta(msg string) metaBody {
	return metaBody{MetaData: metaData{Message: msg}}
}

// statusFor maps the error taxonomy to a status code: absence is 404,
// everything else (validation, conflict, batch failure, internal fault)
// is 400 with the error's message exposed.
func statusFor(err error) int {
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		return fiber.StatusNotFound
	}
	return fiber.StatusBadRequest
}

// ErrorHandler returns a Fiber global error handler covering errors that
// never reached an endpoint handler (unknown routes, bad methods).
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusNotFound:
			return c.Status(status).JSON(message("resource not found"))
		case fiber.StatusMethodNotAllowed:
			return c.Status(status).JSON(message("method not allowed"))
		default:
			return c.Status(status).JSON(message("internal server error"))
		}
	}
}
