package session

import "fmt"

// Reply texts sent to the user
const (
	MsgGreeting = "Hi! My name is Multi Face Remover Bot.\nI help you to delete faces from photos. " +
		"I will change the faces you tell me to blurred areas. " +
		"The photos will be automatically deleted and will only be returned to you in this conversation. " +
		"You will always be the owner and responsible for the photos you send.\n\n" +
		"Send /cancel to stop talking to me.\n\n" +
		"Are you ok with this?"
	MsgConsentRetry     = "Please answer Yes or No."
	MsgConsentGiven     = "Ok, let's go! Please send me a photo with some faces to work on it."
	MsgGoodbye          = "Ok, I'll be around if you need me.\nSimply use /start to restart."
	MsgPermissionNeeded = "I need your permission before working on photos. Use /start to begin."
	MsgImageReceived    = "Image received! Looking for faces."
	MsgNoFaces          = "I couldn't find any faces in this photo. Please send another one."
	MsgTooManyFaces     = "Too many faces in this photo. Please send one with fewer people."
	MsgDetectionFailed  = "The face detection service is unavailable right now. Please send the photo again in a moment."
	MsgUnreadableImage  = "I can't read this image. Please send a JPEG, PNG, or WebP photo."
	MsgProcessingFailed = "Something went wrong while preparing your photo. Please try again."
	MsgReferenceCaption = "This is the reference. Reply with the numbers of the faces to blur, or \"all\"."
	MsgRedactionCaption = "This is the photo blurred. Send more numbers, a new photo, or /cancel."
	MsgNotUnderstood    = "Sorry, I didn't understand that."
	MsgSessionLost      = "Your session expired. Use /start to begin again."
)

// Consent reply buttons
const (
	ChoiceYes = "Yes"
	ChoiceNo  = "No"
)

// MsgFacesDetected reports the detection count
func MsgFacesDetected(n int) string {
	return fmt.Sprintf("Detected %d face(s) in the image.", n)
}

// MsgSelectionRetry asks for a usable selection
func MsgSelectionRetry(n int) string {
	return fmt.Sprintf("I didn't find a face number in your message. Reply with numbers between 1 and %d, or \"all\".", n)
}
