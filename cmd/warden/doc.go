// Command warden watches a directory tree, runs configured checkers on
// changed files, and routes the resulting reports to notification
// channels and issue trackers.
package main
