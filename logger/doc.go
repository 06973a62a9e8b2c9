// Package logger wraps zerolog with the structured-field conventions used
// across asyncseq.
//
// Library packages obtain component loggers through Get and log at debug
// level only; applications call Init (or SetGlobalLogger) once at startup to
// choose the level, format and output.
package logger
