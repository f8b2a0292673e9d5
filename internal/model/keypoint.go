package model

// BodyPartID is a pose-estimation keypoint name (COCO 17-point set, PoseNet spelling).
type BodyPartID string

const (
	PartNose          BodyPartID = "nose"
	PartLeftEye       BodyPartID = "leftEye"
	PartRightEye      BodyPartID = "rightEye"
	PartLeftEar       BodyPartID = "leftEar"
	PartRightEar      BodyPartID = "rightEar"
	PartLeftShoulder  BodyPartID = "leftShoulder"
	PartRightShoulder BodyPartID = "rightShoulder"
	PartLeftElbow     BodyPartID = "leftElbow"
	PartRightElbow    BodyPartID = "rightElbow"
	PartLeftWrist     BodyPartID = "leftWrist"
	PartRightWrist    BodyPartID = "rightWrist"
	PartLeftHip       BodyPartID = "leftHip"
	PartRightHip      BodyPartID = "rightHip"
	PartLeftKnee      BodyPartID = "leftKnee"
	PartRightKnee     BodyPartID = "rightKnee"
	PartLeftAnkle     BodyPartID = "leftAnkle"
	PartRightAnkle    BodyPartID = "rightAnkle"
)

// Keypoint is one estimated body-part position for a single frame.
type Keypoint struct {
	Part     BodyPartID `json:"part"`
	Position Point      `json:"position"`
	Score    float64    `json:"score"`
}

// FilterKeypoints returns keypoints that belong to part and whose score is at least minScore.
// Order is preserved. A zero minScore keeps every matching keypoint.
func FilterKeypoints(kps []Keypoint, part BodyPart, minScore float64) []Keypoint {
	out := make([]Keypoint, 0, len(kps))
	for _, kp := range kps {
		if !part.Includes(kp.Part) {
			continue
		}
		if minScore > 0 && kp.Score < minScore {
			continue
		}
		out = append(out, kp)
	}
	return out
}
