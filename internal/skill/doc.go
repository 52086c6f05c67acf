// Package skill runs the curtain skill on the message bus.
//
// A Runtime subscribes to the intent engine's result topic and to the
// device registry's update topic. Intent envelopes are decoded, filtered by
// kind and classifier confidence, and handed to a Processor (normally
// *curtain.Skill) on their own goroutine. Registry update notifications
// trigger a snapshot refresh.
//
// All background work, including the response and dispatch units the
// orchestrator schedules, runs on a TaskGroup so shutdown can wait for it:
//
//	tasks := skill.NewTaskGroup(log)
//	s, _ := curtain.New(curtain.Config{..., Tasks: tasks})
//	rt, _ := skill.NewRuntime(cfg, mqttClient, registry, s, tasks)
//	if err := rt.Start(ctx); err != nil { ... }
//	defer rt.Stop()
package skill
