// Package discovery crawls the podcast's paginated episode listing and
// records each episode's URL, listing page, title and publish date in the
// catalog. It can also backfill those fields from the podcast feed.
package discovery
