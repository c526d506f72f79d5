// Package notify fans completed reports out to notification channels.
// Channels filter on minimum severity and deliver independently: one
// channel failing or lagging never blocks another, and a failed delivery
// is retried a bounded number of times before being dropped with a log.
package notify
