// Package schedule replays optimizer control signals to devices, one value
// per device per tick.
//
// Each device owns at most one schedule. A schedule dispatches its first
// value as soon as it is installed, then one value per tick interval; once
// the values run out it keeps sending the last one until it is replaced or
// cleared. Timers are one-shot runtime timers re-armed after every tick, so
// an idle schedule costs no goroutine.
//
// Every install gets a new epoch. Timer callbacks carry the epoch they were
// armed for and give up when the table holds a newer one, which is how a
// replaced or cleared schedule is kept from ticking or re-arming.
package schedule
