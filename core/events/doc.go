// Package events defines the scheduler events emitted on the event bus.
//
// Available event types:
//   - ScheduleEvent: a schedule was installed, replaced, skipped or cleared
//   - OutcomeEvent: result of one dispatch attempt
package events
