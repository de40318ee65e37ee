package worker

import (
	"context"
	"time"

	"syncdeck/internal/logger"

	"go.uber.org/zap"
)

// Reminder уведомляет о задачах с прошедшим дедлайном и возвращает их число
type Reminder interface {
	RemindOverdue(ctx context.Context, now time.Time, limit int) (int, error)
}

type DeadlineWorker struct {
	reminder  Reminder
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewDeadlineWorker(reminder Reminder, interval *time.Duration, batchSize *int) *DeadlineWorker {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = 5 * time.Minute
	} else {
		intervalToSet = *interval
	}

	var batchToSet int
	if batchSize == nil || *batchSize <= 0 {
		batchToSet = 100
	} else {
		batchToSet = *batchSize
	}
	return &DeadlineWorker{
		reminder:  reminder,
		interval:  intervalToSet,
		batchSize: batchToSet,
		now:       time.Now,
	}
}

// Start блокируется до отмены ctx
func (w *DeadlineWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Проверка дедлайнов запущена",
		zap.Duration("interval", w.interval),
		zap.Int("batch_size", w.batchSize))

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Проверка дедлайнов останавливается")
			return nil
		}
	}
}

// Check обрабатывает одну пачку; ошибка только логируется, следующий тик попробует снова
func (w *DeadlineWorker) Check(ctx context.Context) int {
	start := time.Now()

	reminded, err := w.reminder.RemindOverdue(ctx, w.now().UTC(), w.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return reminded
		}
		logger.Warn("Worker: Ошибка проверки дедлайнов", zap.Error(err))
		return reminded
	}

	logger.Info("Worker: Завершение проверки дедлайнов",
		zap.Duration("ms", time.Since(start)),
		zap.Int("reminded", reminded),
	)
	return reminded
}
