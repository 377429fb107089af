/*
Package activity records what happens on a desktop session.

Every user-visible event produces an ActivityRecord carrying a timestamp,
the action name, a details map, the fixed actor name and a fresh session
label. Records live in a bounded FIFO; once the capacity is reached the
oldest entry is evicted on every append.

Sinks observe each record after it has been stored. Delivery is
fire-and-forget: a sink error or panic is logged and never reaches the
caller of Record.

# Usage

	logger := activity.NewLogger(activity.DefaultConfig(), log)
	logger.AddSink(activity.SinkFunc(func(rec types.ActivityRecord) error {
	    return hub.Publish(rec)
	}))
	logger.Record("app_opened", map[string]interface{}{"appName": "email"})
*/
package activity
