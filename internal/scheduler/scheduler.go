package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/climacol/clima-core/internal/weather"
)

// Scheduler periodically refreshes weather data for the tracked cities so
// the cache stays warm between dashboard polls.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	aggregator *weather.Aggregator
	cities     []weather.TrackedCity
	interval   time.Duration
}

// New creates a new Scheduler.
func New(cities []weather.TrackedCity, interval time.Duration, aggregator *weather.Aggregator) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:  s,
		aggregator: aggregator,
		cities:     cities,
		interval:   interval,
	}
}

// Start schedules the periodic refresh and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		log.Println("scheduler: no tracked cities configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 5
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running weather refresh job")

		var wg sync.WaitGroup
		for _, city := range s.cities {
			city := city
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if _, err := s.aggregator.FetchWeather(ctx, city.Lat, city.Lon); err != nil {
					// Rate-limit rejections just mean the cache is fresh
					// enough; anything else is worth logging.
					if !errors.Is(err, weather.ErrRateLimited) {
						log.Printf("scheduler: refresh failed for %s: %v", city.Name, err)
					}
				}
			}()
		}
		wg.Wait()
		log.Println("scheduler: completed weather refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
