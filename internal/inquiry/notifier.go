package inquiry

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNS caps subjects at 100 characters.
const maxSubjectLen = 100

type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Notifier struct {
	sns      Publisher
	topicARN string
}

func NewNotifier(p Publisher, topicARN string) *Notifier {
	return &Notifier{sns: p, topicARN: topicARN}
}

// Notify publishes the inquiry and returns the SNS message ID.
func (n *Notifier) Notify(ctx context.Context, in Inquiry) (string, error) {
	out, err := n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(Subject(in)),
		Message:  aws.String(Body(in)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"schoolId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(in.SchoolID),
			},
			"tourRequest": {
				DataType:    aws.String("String"),
				StringValue: aws.String(strconv.FormatBool(in.TourRequest)),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("sns publish: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

func Subject(in Inquiry) string {
	name := in.SchoolName
	if strings.TrimSpace(name) == "" {
		name = in.SchoolID
	}
	s := []rune("Flight school inquiry: " + name)
	if len(s) > maxSubjectLen {
		s = s[:maxSubjectLen]
	}
	return string(s)
}

func Body(in Inquiry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New inquiry for %s (%s)\n\n", in.SchoolName, in.SchoolID)
	fmt.Fprintf(&b, "Name: %s\n", in.Name)
	fmt.Fprintf(&b, "Email: %s\n", in.Email)
	fmt.Fprintf(&b, "Phone: %s\n", in.Phone)
	fmt.Fprintf(&b, "Program interest: %s\n", in.ProgramInterest)
	fmt.Fprintf(&b, "Tour requested: %s\n", yesNo(in.TourRequest))
	if strings.TrimSpace(in.Message) != "" {
		fmt.Fprintf(&b, "\nMessage:\n%s\n", in.Message)
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
