package usecase

import (
	"strings"

	domainErrors "github.com/polkiloo/servicemart/internal/domain/errors"
	"github.com/polkiloo/servicemart/internal/domain/model"
)

// ParseCatalogKind accepts both singular and plural catalog names.
func ParseCatalogKind(raw string) (model.TargetKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "product", "products":
		return model.TargetProduct, nil
	case "service", "services":
		return model.TargetService, nil
	default:
		return "", domainErrors.Invalid("kind", "must be products or services")
	}
}
