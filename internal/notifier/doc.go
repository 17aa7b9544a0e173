// Package notifier delivers curation run reports.
//
// A Telegram notifier posts the report to a chat; the dry-run notifier writes
// the same message to a writer (stderr from the CLI) so a run can be checked
// without sending anything.
package notifier
