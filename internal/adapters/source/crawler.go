package source

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/metrics"
)

const (
	// DefaultMaxComments — сколько валидных отзывов собирается до остановки обхода.
	DefaultMaxComments = 200
	// DefaultSampleSize — размер выборки, если собран полный лимит.
	DefaultSampleSize = 100

	minCommentRunes = 5
)

// Crawler собирает отзывы постранично и формирует выборку для анализа.
type Crawler struct {
	client      *Client
	logger      zerolog.Logger
	maxComments int
	sampleSize  int

	mu  sync.Mutex
	rng *rand.Rand
}

var _ domain.ReviewFetcher = (*Crawler)(nil)

// NewCrawler создаёт краулер. rng используется для выборки и должен быть задан.
func NewCrawler(client *Client, rng *rand.Rand, maxComments, sampleSize int, logger zerolog.Logger) *Crawler {
	if maxComments <= 0 {
		maxComments = DefaultMaxComments
	}
	if sampleSize <= 0 || sampleSize > maxComments {
		sampleSize = DefaultSampleSize
		if sampleSize > maxComments {
			sampleSize = maxComments
		}
	}
	return &Crawler{
		client:      client,
		rng:         rng,
		maxComments: maxComments,
		sampleSize:  sampleSize,
		logger:      logger.With().Str("component", "crawler").Logger(),
	}
}

// FetchComments обходит страницы отзывов товара и возвращает выборку.
func (c *Crawler) FetchComments(ctx context.Context, productID domain.ProductID) ([]domain.RawComment, error) {
	var collected []domain.RawComment
	log := c.logger.With().Int64("product_id", int64(productID)).Logger()

	for page := 1; len(collected) < c.maxComments; page++ {
		bodies, ok, err := c.client.CommentsPage(ctx, productID, page)
		if err != nil {
			return nil, &domain.FetchError{ProductID: productID, Err: err}
		}
		if !ok {
			log.Warn().Int("page", page).Msg("crawler: ответ не 200, обход остановлен")
			break
		}
		if len(bodies) == 0 {
			log.Debug().Int("page", page).Msg("crawler: пустая страница, обход завершён")
			break
		}
		for _, body := range bodies {
			text := strings.TrimSpace(body)
			if utf8.RuneCountInString(text) <= minCommentRunes {
				continue
			}
			collected = append(collected, domain.RawComment(text))
			if len(collected) >= c.maxComments {
				break
			}
		}
	}
	metrics.CommentsFetched.Add(float64(len(collected)))

	c.mu.Lock()
	sample := SampleN(collected, c.rng, c.maxComments, c.sampleSize)
	c.mu.Unlock()

	metrics.CommentsSampled.Add(float64(len(sample)))
	log.Info().Int("collected", len(collected)).Int("sampled", len(sample)).Msg("crawler: отзывы собраны")
	return sample, nil
}

// Sample применяет стандартное правило выборки: из 200 и более отзывов берётся 100 случайных, иначе все.
func Sample(comments []domain.RawComment, rng *rand.Rand) []domain.RawComment {
	return SampleN(comments, rng, DefaultMaxComments, DefaultSampleSize)
}

// SampleN выбирает size отзывов без повторов, если их не меньше threshold.
// Иначе возвращает все отзывы в случайном порядке.
func SampleN(comments []domain.RawComment, rng *rand.Rand, threshold, size int) []domain.RawComment {
	if len(comments) == 0 {
		return []domain.RawComment{}
	}
	if len(comments) < threshold || size >= len(comments) {
		out := make([]domain.RawComment, len(comments))
		copy(out, comments)
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}
	out := make([]domain.RawComment, 0, size)
	for _, idx := range rng.Perm(len(comments))[:size] {
		out = append(out, comments[idx])
	}
	return out
}
