package janitor

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Start запускает тикер автосохранения. Повторный Start без Stop игнорируется.
func (j *Janitor) Start() {
	if j.interval <= 0 {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stopCh != nil {
		return
	}

	j.stopCh = make(chan struct{})
	j.done = make(chan struct{})
	go j.run(j.clock.Ticker(j.interval), j.stopCh, j.done)
}

// Stop останавливает тикер и ждёт, пока текущее сохранение (если идёт)
// закончится.
func (j *Janitor) Stop() {
	j.mu.Lock()
	stopCh, done := j.stopCh, j.done
	j.stopCh, j.done = nil, nil
	j.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done
}

func (j *Janitor) run(ticker *clock.Ticker, stopCh, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.target.Checkpoint(); err != nil {
				j.log.Warn("autosave failed", zap.Error(err))
			} else {
				j.log.Debug("autosave done")
			}
		case <-stopCh:
			return
		}
	}
}
