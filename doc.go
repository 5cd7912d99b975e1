// Package apriltag implements an AprilTag visual fiducial detector: given a
// grayscale image, it locates planar square markers, decodes each marker's
// payload against a registered tag family, and reports identifier,
// correction distance, image-space corners, center, and quality for each
// detection. An optional pose-solving step recovers 6-DoF camera-relative
// pose from a detection's homography given camera intrinsics and physical
// tag size.
//
// A Detector is constructed with DefaultConfig (or a caller-built Config),
// families are added with AddFamily, and Detect runs the full pipeline:
// decimation and blur, adaptive thresholding, connected-component
// segmentation (or contour tracing), quadrilateral assembly, decoding,
// optional refinement, and deduplication. Detect is safe to call repeatedly
// on the same Detector; each call returns a fresh DetectionList that the
// caller should Release when done.
package apriltag
