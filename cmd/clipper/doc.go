// Command clipper records the screen into a looping black-and-white GIF.
//
//	clipper record [path] [seconds]        fixed-length recording
//	clipper clip [path] [window-seconds]   keep the last N seconds until stopped
//	clipper displays                       list capturable monitors
//	clipper config sample|validate         configuration helpers
package main
