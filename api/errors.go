package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"technews/model"
	"technews/store"
)

// parseID reads the :id path parameter. It writes a 400 and returns false
// when the id is not a valid ObjectID.
func parseID(c *gin.Context, what string) (primitive.ObjectID, bool) {
	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondError maps store and validation errors to a status code. Internal
// failures are logged and answered with the given public message.
func respondError(c *gin.Context, err error, notFound, failure string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, store.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidBlogPost):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failure})
	}
}
