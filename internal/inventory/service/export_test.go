package service

// NewAlertSchedulerFor builds a scheduler around any scanner.
var NewAlertSchedulerFor = newAlertScheduler
