package main

import "errors"

var errAlreadyRunning = errors.New("chatwire is already running")
