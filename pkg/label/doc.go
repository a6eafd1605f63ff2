// Package label holds the labeling state machine of the chart: the hover
// cell read by discrete input handlers, the mark toggle rules and the
// keyed mark set shared by the click and keyboard paths.
package label
