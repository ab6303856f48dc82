package respond

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"
)

// Error represents a standard structure for error responses.
type Error struct {
	Message string `json:"error"`
}

// JSON sends a JSON response with the specified HTTP status code and data.
func JSON(c *ginext.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// OK sends a 200 OK JSON response.
func OK(c *ginext.Context, result interface{}) {
	JSON(c, http.StatusOK, result)
}

// Fail sends an error JSON response with the specified HTTP status code.
// The error message is wrapped in an Error struct.
func Fail(c *ginext.Context, status int, err error) {
	JSON(c, status, Error{Message: err.Error()})
}
