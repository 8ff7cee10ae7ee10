package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"forum-reactor/internal/core"
)

// liveBuffer holds live messages that arrive while an attempt is running
const liveBuffer = 256

// Scanner turns channel history and live messages into reaction targets
type Scanner struct {
	source MessageSource
	links  *LinkExtractor
	forum  core.ForumConfig
	limit  int
	logger *zap.Logger
}

// NewScanner creates a scanner reading up to limit history messages
func NewScanner(source MessageSource, links *LinkExtractor, forum core.ForumConfig, limit int, logger *zap.Logger) *Scanner {
	return &Scanner{
		source: source,
		links:  links,
		forum:  forum,
		limit:  limit,
		logger: logger,
	}
}

// Run emits targets from history first, then from live messages until ctx is done. The
// live subscription starts before history is read so nothing posted in between is lost.
// Each post is emitted at most once per run. out is closed on return.
func (s *Scanner) Run(ctx context.Context, out chan<- core.Target) error {
	defer close(out)

	live := make(chan Message, liveBuffer)
	unsubscribe := s.source.Subscribe(func(m Message) {
		select {
		case live <- m:
		default:
			s.logger.Warn("Live message buffer full, dropping message", zap.String("message_id", m.ID))
		}
	})
	defer unsubscribe()

	name, err := s.source.ChannelName(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve channel: %w", err)
	}

	s.logger.Info("Scanning channel history", zap.String("channel", name), zap.Int("limit", s.limit))
	history, err := s.source.History(ctx, s.limit)
	if err != nil {
		return fmt.Errorf("failed to scan history: %w", err)
	}
	s.logger.Info("History fetched", zap.Int("messages", len(history)))

	seen := make(map[string]struct{})
	for _, m := range history {
		if !s.emit(ctx, m, seen, out) {
			return nil
		}
	}

	s.logger.Info("Watching for new messages", zap.String("channel", name))
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-live:
			if !s.emit(ctx, m, seen, out) {
				return nil
			}
		}
	}
}

// emit sends the targets linked in m and reports false once ctx is done
func (s *Scanner) emit(ctx context.Context, m Message, seen map[string]struct{}, out chan<- core.Target) bool {
	for _, id := range s.links.PostIDs(m.Content) {
		if _, ok := seen[id]; ok {
			s.logger.Debug("Post already queued", zap.String("post_id", id), zap.String("message_id", m.ID))
			continue
		}
		seen[id] = struct{}{}

		target := core.NewTarget(s.forum, id, m.ID)
		s.logger.Info("Post link found",
			zap.String("post_id", id),
			zap.String("message_id", m.ID),
			zap.String("author", m.Author),
		)

		select {
		case out <- target:
		case <-ctx.Done():
			return false
		}
	}
	return ctx.Err() == nil
}
