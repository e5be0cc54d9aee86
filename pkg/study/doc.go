// Package study validates a local study directory and parses its metadata.
//
// A study is a directory holding one sub-directory per dataset, each with one
// or two non-empty .fastq.gz files, plus the optional tab separated metadata
// files pedigree.txt (phenotypes and family relationships) and technical.txt
// (sequencing metadata). Validate turns a directory into a Tree ready for upload.
package study
