package handler

import "github.com/noah-isme/vaccine-registration/internal/models"

var tagMessages = map[models.InvalidTag]string{
	models.TagFullNameRequired:    "กรุณากรอกชื่อ-นามสกุล",
	models.TagFullNameWrongScript: "กรุณากรอกชื่อ-นามสกุลเป็นภาษาไทยหรือภาษาอังกฤษเท่านั้น",
	models.TagIDCardRequired:      "กรุณากรอกหมายเลขบัตรประชาชน",
	models.TagIDCardBadFormat:     "กรุณากรอกหมายเลขบัตรประชาชนให้ครบ 13 หลัก",
	models.TagGenderRequired:      "กรุณาเลือกเพศ",
	models.TagBirthdayRequired:    "กรุณากรอกวัน/เดือน/ปีเกิด",
	models.TagBirthdayOutOfRange:  "กรุณาเลือกวันเกิดตั้งแต่ 1 มกราคม พ.ศ. 2443 จนถึงวันนี้",
}

// messageFor returns the inline message shown under a field for tag.
func messageFor(tag models.InvalidTag) string {
	if msg, ok := tagMessages[tag]; ok {
		return msg
	}
	return string(tag)
}

func messagesFor(tags []models.InvalidTag) map[models.InvalidTag]string {
	out := make(map[models.InvalidTag]string, len(tags))
	for _, tag := range tags {
		out[tag] = messageFor(tag)
	}
	return out
}
