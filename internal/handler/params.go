package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/crm-service/internal/search"
	"github.com/maxviazov/crm-service/internal/service"
)

// pathID parses :id. Garbage yields a field error rather than a silent zero.
func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.NewInvalidInputError([]service.FieldError{{Field: "id", Message: "must be a positive integer"}})
	}
	return id, nil
}

// searchConfig reads search, status, page and page_size. Unparseable numbers
// fall back to the defaults, same as out-of-range ones.
func searchConfig(c *gin.Context) search.Config {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return search.Config{
		Term:     c.Query("search"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: size,
	}
}

// badBody is returned when the JSON body cannot be decoded at all.
var badBody = service.NewInvalidInputError([]service.FieldError{{Field: "body", Message: "must be a valid JSON object"}})
