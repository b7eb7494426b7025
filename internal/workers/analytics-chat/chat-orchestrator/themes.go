package chatorchestrator

var questionThemes = []QuestionTheme{
	{
		Name: "트렌딩 분석",
		Questions: []string{
			"지금 가장 인기 있는 동영상 TOP 10은?",
			"오늘 급상승 중인 동영상은?",
			"게임 카테고리 트렌딩 동영상 보여줘",
		},
	},
	{
		Name: "채널 분석",
		Questions: []string{
			"트렌딩에 가장 많이 오른 채널은?",
			"구독자 대비 조회수가 높은 채널은?",
			"최근 성장세가 가장 빠른 채널은?",
		},
	},
	{
		Name: "알고리즘 인사이트",
		Questions: []string{
			"트렌딩에 오르기까지 평균 몇 시간이 걸려?",
			"어떤 요일에 업로드하면 트렌딩에 잘 올라?",
			"트렌딩 진입 속도가 빠른 동영상은?",
		},
	},
	{
		Name: "참여율 분석",
		Questions: []string{
			"좋아요 비율이 가장 높은 카테고리는?",
			"댓글 참여율이 높은 동영상은?",
			"카테고리별 평균 참여율 비교해줘",
		},
	},
	{
		Name: "콘텐츠 분석",
		Questions: []string{
			"쇼츠와 일반 동영상 성과 비교해줘",
			"동영상 길이별 평균 조회수는?",
			"카테고리별 트렌딩 비율 보여줘",
		},
	},
}

// SuggestedQuestions returns example questions grouped by theme.
func (s *Service) SuggestedQuestions() []QuestionTheme {
	themes := make([]QuestionTheme, len(questionThemes))
	for i, t := range questionThemes {
		themes[i] = QuestionTheme{Name: t.Name, Questions: append([]string(nil), t.Questions...)}
	}
	return themes
}
