package logging

// Package logging configures the logrus standard logger: a UTC line or JSON
// formatter on stdout plus an optional daily rotated file, and component
// tagged entries for the packages that log.
