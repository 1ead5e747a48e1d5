// Package events defines the train events emitted on the event bus.
//
// Available event types:
//   - PassengerBoarded: a waiting passenger entered the dispatch queue
//   - EmergencyEscorted: an emergency passenger was served
//   - TrainMoved: the train changed station
//   - PassengerAlighted: a passenger reached its destination
//   - PassengerExpired: a waiting passenger was dropped by the holding policy
//   - CycleCompleted: a dispatch cycle finished
package events
