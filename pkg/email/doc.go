// Package email sends transactional messages through Postmark
// (github.com/mrz1836/postmark). Without a server token NewSender falls back
// to DevSender, which writes every message to a JSON file for inspection.
package email
