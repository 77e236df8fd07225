package handler

import (
	"fmt"
	"net/http"
	"strconv"

	internal_errors "github.com/boxforum/boxforum/shared/errors"
	"github.com/boxforum/boxforum/shared/utils"
	"github.com/go-chi/chi/v5"
)

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, internal_errors.Validation(fmt.Sprintf("invalid %s: must be an integer", paramName))
	}
	return val, nil
}

// parsePage reads ?page=, defaulting to the first page.
func parsePage(r *http.Request) (int, error) {
	pageStr := r.URL.Query().Get("page")
	if pageStr == "" {
		return 1, nil
	}
	return parseIntParam(pageStr, "page")
}

// idParam reads and validates a uuid route parameter.
func idParam(r *http.Request, name string) (string, error) {
	return utils.ParseId(chi.URLParam(r, name), name)
}
