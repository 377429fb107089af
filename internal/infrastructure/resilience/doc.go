/*
Package resilience guards calls to dependencies that can fail for a while,
such as the SQLite activity archive.

A Breaker counts consecutive failures. Once Threshold is reached it opens
and rejects calls with ErrOpen for Cooldown. The first call after the
cooldown is a probe: success closes the breaker, failure reopens it.

	breaker := resilience.New("archive", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
	})
	err := breaker.Do(ctx, func(ctx context.Context) error {
		_, err := store.InsertActivity(ctx, row)
		return err
	})
*/
package resilience
