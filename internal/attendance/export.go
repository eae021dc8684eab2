package attendance

import (
	"context"
	"encoding/xml"
)

// The export layout is a compatibility contract: root Attendance, one
// Entry per record in listing order, with exactly these child elements in
// this order.

type exportEntry struct {
	XMLName          xml.Name `xml:"Entry"`
	Name             string   `xml:"Name"`
	RollNo           string   `xml:"RollNo"`
	Subject          string   `xml:"Subject"`
	Date             string   `xml:"Date"`
	Time             string   `xml:"Time"`
	VerificationType string   `xml:"VerificationType"`
}

type exportDocument struct {
	XMLName xml.Name      `xml:"Attendance"`
	Entries []exportEntry `xml:"Entry"`
}

// ExportXML renders all attendance records as a UTF-8 XML document with
// declaration, in the same order as Attendance.
func (s *Service) ExportXML(ctx context.Context) ([]byte, error) {
	records, err := s.store.ListAttendance(ctx)
	if err != nil {
		return nil, err
	}

	doc := exportDocument{Entries: make([]exportEntry, 0, len(records))}
	for _, r := range records {
		doc.Entries = append(doc.Entries, exportEntry{
			Name:             r.Name,
			RollNo:           r.RollNo,
			Subject:          r.Subject,
			Date:             r.Date,
			Time:             r.Time,
			VerificationType: r.VerificationType,
		})
	}

	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
