package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownBodyPart = errors.New("unknown body part")
	ErrUnknownShape    = errors.New("unknown object shape")
	ErrUnknownSize     = errors.New("unknown size class")
)

// BodyPart is the player-selected body part used to touch targets.
type BodyPart string

const (
	BodyPartHand BodyPart = "hand"
	BodyPartHead BodyPart = "head"
	BodyPartFoot BodyPart = "foot"
)

var bodyPartKeypoints = map[BodyPart][]BodyPartID{
	BodyPartHand: {PartLeftWrist, PartRightWrist},
	BodyPartHead: {PartNose, PartLeftEye, PartRightEye},
	BodyPartFoot: {PartLeftAnkle, PartRightAnkle},
}

// ParseBodyPart parses hand, head or foot (case-insensitive).
func ParseBodyPart(s string) (BodyPart, error) {
	p := BodyPart(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := bodyPartKeypoints[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBodyPart, s)
	}
	return p, nil
}

// Valid reports whether p is a known body part.
func (p BodyPart) Valid() bool {
	_, ok := bodyPartKeypoints[p]
	return ok
}

// Keypoints returns the keypoint names that represent p. Unknown parts map to none.
func (p BodyPart) Keypoints() []BodyPartID {
	return bodyPartKeypoints[p]
}

// Includes reports whether keypoint id belongs to p.
func (p BodyPart) Includes(id BodyPartID) bool {
	for _, k := range bodyPartKeypoints[p] {
		if k == id {
			return true
		}
	}
	return false
}

// ShapeClass is the rendered shape of a target. Shape never affects collision.
type ShapeClass string

const (
	ShapeCircle    ShapeClass = "circle"
	ShapeRectangle ShapeClass = "rectangle"
	ShapeTriangle  ShapeClass = "triangle"
)

// ParseShape parses circle, rectangle or triangle (case-insensitive).
func ParseShape(s string) (ShapeClass, error) {
	sh := ShapeClass(strings.ToLower(strings.TrimSpace(s)))
	if !sh.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownShape, s)
	}
	return sh, nil
}

// Valid reports whether sh is a known shape.
func (sh ShapeClass) Valid() bool {
	switch sh {
	case ShapeCircle, ShapeRectangle, ShapeTriangle:
		return true
	}
	return false
}

// SizeClass is a size bucket mapped to a fixed pixel radius.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

// ParseSize parses small, medium or large (case-insensitive).
func ParseSize(s string) (SizeClass, error) {
	sz := SizeClass(strings.ToLower(strings.TrimSpace(s)))
	if !sz.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSize, s)
	}
	return sz, nil
}

// Valid reports whether sz is a known size class.
func (sz SizeClass) Valid() bool {
	switch sz {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// OrDefault returns sz, or SizeMedium when sz is unset or unknown.
func (sz SizeClass) OrDefault() SizeClass {
	if sz.Valid() {
		return sz
	}
	return SizeMedium
}
