package ports

import (
	"time"

	"github.com/genc-murat/crystalplaces/internal/core/models"
)

// SuggestionCache stores prediction lists per partition
type SuggestionCache interface {
	Get(partition, key string) ([]models.Suggestion, bool)
	Set(partition, key string, value []models.Suggestion, ttl time.Duration)
	Clear(partition string, keys ...string)
}
