package lifecycle

// Package lifecycle decides, per on-screen media item, when the loading
// indicator appears, when a load is declared timed out and when it is retried.
//
// A lifecycle starts in PendingVisible with a show-delay timer and a timeout
// timer armed. Completion before the show-delay never shows the indicator;
// completion after it keeps the indicator up for a minimum visible duration.
// A timeout or failure schedules one automatic retry through the media cache;
// a second one raises a persistent retry affordance instead.
