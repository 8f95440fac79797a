package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DbField is the gin context key holding the request's *gorm.DB.
const DbField = "_voiceshelf_db"

// InjectDB makes db available to handlers and model helpers that only
// receive the gin context.
func InjectDB(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DbField, db)
		c.Next()
	}
}

// DB returns the injected database, or nil.
func DB(c *gin.Context) *gorm.DB {
	if v, ok := c.Get(DbField); ok {
		if db, ok := v.(*gorm.DB); ok {
			return db
		}
	}
	return nil
}
