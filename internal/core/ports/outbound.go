package ports

import (
	"context"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

// CandidateRepository persists and reads candidate state.
type CandidateRepository interface {
	Create(ctx context.Context, c *domain.Candidate) error
	GetByID(ctx context.Context, id string) (*domain.Candidate, error)
	FindByPlaceID(ctx context.Context, placeID string) (*domain.Candidate, error)
	FindByNameAddress(ctx context.Context, name, address string) (*domain.Candidate, error)
	Update(ctx context.Context, c *domain.Candidate) error
	AppendSource(ctx context.Context, id string, src domain.Evidence) error
	ListByStatus(ctx context.Context, status domain.CandidateStatus, limit, offset int) ([]domain.Candidate, error)
}

// JobRepository persists collection job records.
type JobRepository interface {
	Create(ctx context.Context, job *domain.CollectionJob) error
	Update(ctx context.Context, job *domain.CollectionJob) error
	GetByID(ctx context.Context, id string) (*domain.CollectionJob, error)
}

// PlaceSearcher runs free-text searches against the place directory.
type PlaceSearcher interface {
	SearchText(ctx context.Context, query string, maxResults int, bias *domain.GeoBias) ([]domain.PlaceResult, error)
}

// PlaceDetailer fetches the full directory record for one place.
type PlaceDetailer interface {
	Details(ctx context.Context, placeID string) (*domain.PlaceDetails, error)
}

// SiteCrawler fetches a candidate website and rule-extracts its content.
type SiteCrawler interface {
	Crawl(ctx context.Context, websiteURL string) (*domain.SiteContent, error)
}

// MenuExtractor performs AI menu extraction from page text or a menu image.
type MenuExtractor interface {
	ExtractFromText(ctx context.Context, text string) ([]domain.MenuItem, error)
	ExtractFromImage(ctx context.Context, imageURL string) ([]domain.MenuItem, error)
}

// MessageQueue publishes/consumes deep-dive requests.
type MessageQueue interface {
	PublishDeepDiveRequested(ctx context.Context, candidateID string) error
	SubscribeDeepDiveRequested(ctx context.Context, handler func(context.Context, string) error) error
}
