package actions

import "fmt"

const (
	MsgLoginRequired        = "로그인이 필요합니다."
	MsgTitleContentRequired = "제목과 내용을 입력해주세요."
	MsgCommentRequired      = "댓글 내용을 입력해주세요."
	MsgCredentialsRequired  = "이메일과 비밀번호를 입력해주세요."
	MsgPasswordRequired     = "새 비밀번호를 입력해주세요."
	MsgPasswordMismatch     = "비밀번호가 일치하지 않습니다."

	MsgNeedsEmailConfirmation = "회원가입이 완료되었지만 이메일 확인이 필요할 수 있습니다. 이메일을 확인해주세요."
	MsgEmailNotConfirmed      = "이메일 인증이 완료되지 않았습니다. 받은 편지함의 인증 메일을 확인해주세요."
	MsgUserDoesNotExist       = "사용자가 존재하지 않습니다."
	MsgResetMailSent          = "비밀번호 재설정 메일을 보냈습니다. 메일함을 확인해주세요."

	MsgPostNotFound      = "게시글을 찾을 수 없습니다."
	MsgPostForbidden     = "본인이 작성한 게시글만 수정하거나 삭제할 수 있습니다."
	MsgPostCreatedNoData = "게시글이 생성되었지만 데이터를 가져올 수 없습니다."
	MsgCommentNotFound   = "댓글을 찾을 수 없습니다."
	MsgCommentForbidden  = "본인이 작성한 댓글만 수정하거나 삭제할 수 있습니다."
	MsgInvalidReaction   = "잘못된 반응 유형입니다."
)

func msgInvalidLogin(email string) string {
	return fmt.Sprintf(`로그인 실패: 이메일(%s) 또는 비밀번호가 올바르지 않습니다.

확인 사항:
1. 가입한 이메일 주소가 맞는지 확인
2. 비밀번호가 정확한지 확인 (대소문자 구분)
3. 인증 메일을 받았다면 링크를 눌러 인증을 완료했는지 확인
4. 서버 로그의 "sign in failed" 항목 확인`, email)
}

func msgUnregisteredEmail(email string) string {
	return fmt.Sprintf("등록되지 않은 이메일입니다: %s", email)
}
