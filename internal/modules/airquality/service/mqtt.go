package service

import (
	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/mqtt"
)

// HandleNotice marks the dataset stale when the notice was published after
// the loaded snapshot was taken. Before the first load there is nothing to
// invalidate, and retained notices replayed on reconnect are ignored.
func (s *Service) HandleNotice(n dataset.Notice) error {
	current := s.loader.Current()
	if current == nil || !n.PublishedAt.After(current.LoadedAt) {
		s.logger.Debug("dataset notice ignored",
			"run_id", n.RunID,
			"published_at", n.PublishedAt,
		)
		return nil
	}
	s.loader.Invalidate()
	s.logger.Info("dataset invalidated by notice",
		"run_id", n.RunID,
		"path", n.Path,
		"rows", n.Rows,
	)
	return nil
}

// Register attaches the notice handler to subscriber.
func (s *Service) Register(subscriber mqtt.NoticeSubscriber) {
	subscriber.SetMessageHandler(s.HandleNotice)
}
