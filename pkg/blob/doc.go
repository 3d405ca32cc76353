// Package blob stores opaque objects in S3 (aws-sdk-go-v2) or on the local
// filesystem. duebook uses it to archive verified gateway webhook payloads.
package blob
