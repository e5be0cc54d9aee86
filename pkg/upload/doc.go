// Package upload drives an upload run: it reconciles local studies with the
// ones already on the server, creates the missing resources and streams the
// fastq files in chunks.
package upload
